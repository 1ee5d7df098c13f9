package testrun

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
)

// IndexedSource is the uniform row-access contract the engine dispatches
// from: a total count and random access by index. The fourth source kind,
// the user-supplied paged function, does not fit this contract and is
// handled by the orchestrator's sequential paging loop instead.
type IndexedSource interface {
	// Count returns the total number of rows. It is called once, before the
	// first Row call, and may validate the source against the declared data
	// structure.
	Count(ctx context.Context) (int, error)
	// Row returns the row at index together with the originating dataset
	// entry id, when the source has one.
	Row(ctx context.Context, index int) (Row, string, error)
}

// PagedDataFunc supplies rows page by page, called with an increasing page
// index starting at 0. A nil slice signals that no more pages exist. Pages
// are fetched strictly sequentially: the engine does not request page N+1
// until every row of page N has finished processing.
type PagedDataFunc func(ctx context.Context, page int) ([]Row, error)

// sliceSource serves an in-memory row list.
type sliceSource struct {
	rows []Row
}

func newSliceSource(rows []Row) *sliceSource {
	return &sliceSource{rows: rows}
}

func (s *sliceSource) Count(ctx context.Context) (int, error) {
	return len(s.rows), nil
}

func (s *sliceSource) Row(ctx context.Context, index int) (Row, string, error) {
	if index < 0 || index >= len(s.rows) {
		return nil, "", fmt.Errorf("row index %d out of range [0, %d)", index, len(s.rows))
	}
	return s.rows[index], "", nil
}

// fileSource serves rows from a tabular file. Parsing is delegated to
// encoding/csv; the source validates the header against the declared roles
// before the first row is served.
type fileSource struct {
	path      string
	structure DataStructure

	once    sync.Once
	loadErr error
	header  []string
	records [][]string
}

func newFileSource(path string, structure DataStructure) *fileSource {
	return &fileSource{path: path, structure: structure}
}

func (s *fileSource) load() error {
	s.once.Do(func() {
		file, err := os.Open(s.path)
		if err != nil {
			s.loadErr = fmt.Errorf("failed to open data file: %w", err)
			return
		}
		defer file.Close()

		reader := csv.NewReader(file)
		rows, err := reader.ReadAll()
		if err != nil {
			s.loadErr = fmt.Errorf("failed to parse data file %s: %w", s.path, err)
			return
		}
		if len(rows) == 0 {
			s.loadErr = fmt.Errorf("data file %s has no header row", s.path)
			return
		}
		s.header, s.records = rows[0], rows[1:]

		columns := map[string]bool{}
		for _, column := range s.header {
			columns[column] = true
		}
		for column := range s.structure {
			if !columns[column] {
				s.loadErr = runerrors.NewConfigurationError(messages.SchemaColumnMissing,
					"Column", column, "Source", "file")
				return
			}
		}
	})
	return s.loadErr
}

func (s *fileSource) Count(ctx context.Context) (int, error) {
	if err := s.load(); err != nil {
		return 0, err
	}
	return len(s.records), nil
}

func (s *fileSource) Row(ctx context.Context, index int) (Row, string, error) {
	if err := s.load(); err != nil {
		return nil, "", err
	}
	if index < 0 || index >= len(s.records) {
		return nil, "", fmt.Errorf("row index %d out of range [0, %d)", index, len(s.records))
	}
	row := Row{}
	record := s.records[index]
	for i, column := range s.header {
		if i < len(record) {
			row[column] = record[i]
		}
	}
	return row, "", nil
}

// remoteSource serves rows from a hosted dataset, one remote call per row.
// The remote structure is fetched once and validated against the declared
// one: additional remote columns are permitted, missing ones are not.
type remoteSource struct {
	remote    DatasetAPI
	datasetID string
	structure DataStructure

	once        sync.Once
	validateErr error
}

func newRemoteSource(remote DatasetAPI, datasetID string, structure DataStructure) *remoteSource {
	return &remoteSource{remote: remote, datasetID: datasetID, structure: structure}
}

func (s *remoteSource) validateStructure(ctx context.Context) error {
	s.once.Do(func() {
		remoteStructure, err := s.remote.DatasetStructure(ctx, s.datasetID)
		if err != nil {
			s.validateErr = runerrors.NewRemoteError(err, messages.RemoteCallFailed,
				"Operation", "dataset structure", "Error", err.Error())
			return
		}
		for column, role := range s.structure {
			remoteRole, ok := remoteStructure[column]
			if !ok {
				s.validateErr = runerrors.NewConfigurationError(messages.SchemaColumnMissing,
					"Column", column, "Source", "dataset")
				return
			}
			if remoteRole != string(role) {
				s.validateErr = runerrors.NewConfigurationError(messages.ConfigurationInvalid,
					"Error", fmt.Sprintf("column %q has role %s on the dataset but %s in the declared structure", column, remoteRole, role))
				return
			}
		}
	})
	return s.validateErr
}

func (s *remoteSource) Count(ctx context.Context) (int, error) {
	if err := s.validateStructure(ctx); err != nil {
		return 0, err
	}
	total, err := s.remote.DatasetTotalRows(ctx, s.datasetID)
	if err != nil {
		return 0, runerrors.NewRemoteError(err, messages.RemoteCallFailed,
			"Operation", "dataset total rows", "Error", err.Error())
	}
	return total, nil
}

func (s *remoteSource) Row(ctx context.Context, index int) (Row, string, error) {
	if err := s.validateStructure(ctx); err != nil {
		return nil, "", err
	}
	datasetRow, err := s.remote.DatasetRow(ctx, s.datasetID, index)
	if err != nil {
		return nil, "", runerrors.NewRemoteError(err, messages.RemoteCallFailed,
			"Operation", fmt.Sprintf("dataset row %d", index), "Error", err.Error())
	}
	return Row(datasetRow.Data), datasetRow.ID, nil
}
