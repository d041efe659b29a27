package database

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/ds124wfegd/skysight/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

const historyDir = "history"

func NewFileHistoryRepository(storage storage.FileStorage) HistoryRepository {
	return &fileHistoryRepository{storage: storage}
}

func (r *fileHistoryRepository) Save(_ context.Context, record *entity.AnalysisRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return r.storage.Save(r.recordPath(record.ID), bytes.NewReader(data))
}

func (r *fileHistoryRepository) Recent(_ context.Context, limit int) ([]entity.AnalysisRecord, error) {
	paths, err := r.storage.List(historyDir)
	if err != nil {
		return nil, err
	}

	records := make([]entity.AnalysisRecord, 0, len(paths))
	for _, path := range paths {
		record, err := r.load(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			logrus.WithError(err).WithField("path", path).Warn("skipping unreadable history record")
			continue
		}
		records = append(records, *record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *fileHistoryRepository) load(path string) (*entity.AnalysisRecord, error) {
	reader, err := r.storage.Get(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var record entity.AnalysisRecord
	if err := json.NewDecoder(reader).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *fileHistoryRepository) recordPath(id string) string {
	return filepath.Join(historyDir, id+".json")
}
