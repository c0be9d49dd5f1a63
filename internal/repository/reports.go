package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "scholarship-engine/internal/common/errors"
	"scholarship-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// TrainingReportIndex writes finished training runs to Elasticsearch so
// model history can be searched alongside the application analytics.
type TrainingReportIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewTrainingReportIndex(client *elasticsearch.Client, index string) *TrainingReportIndex {
	return &TrainingReportIndex{client: client, index: index}
}

// trainingRunMapping keeps run IDs and codes as keywords so dashboards can
// aggregate on them.
const trainingRunMapping = `{
  "mappings": {
    "properties": {
      "runId":        {"type": "keyword"},
      "status":       {"type": "keyword"},
      "trigger":      {"type": "keyword"},
      "startedAt":    {"type": "date"},
      "finishedAt":   {"type": "date"},
      "modelVersion": {"type": "integer"},
      "activated":    {"type": "boolean"},
      "examples":     {"type": "integer"},
      "errorCode":    {"type": "keyword"},
      "errorMessage": {"type": "text"},
      "metrics": {
        "properties": {
          "finalLoss":        {"type": "double"},
          "bestLoss":         {"type": "double"},
          "iterations":       {"type": "integer"},
          "converged":        {"type": "boolean"},
          "accuracy":         {"type": "double"},
          "positiveExamples": {"type": "integer"},
          "negativeExamples": {"type": "integer"}
        }
      }
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (r *TrainingReportIndex) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return apperrors.NewExternalServiceError("elasticsearch", err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return apperrors.NewExternalServiceError("elasticsearch", fmt.Errorf("check index %s: %s", r.index, res.Status()))
	}

	res, err = r.client.Indices.Create(
		r.index,
		r.client.Indices.Create.WithBody(strings.NewReader(trainingRunMapping)),
		r.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return apperrors.NewExternalServiceError("elasticsearch", err)
	}
	defer res.Body.Close()
	// A concurrent replica may have created it first.
	if res.IsError() && !strings.Contains(readBody(res.Body), "resource_already_exists_exception") {
		return apperrors.NewExternalServiceError("elasticsearch", fmt.Errorf("create index %s: %s", r.index, res.Status()))
	}
	return nil
}

// IndexRun upserts run under its ID.
func (r *TrainingReportIndex) IndexRun(ctx context.Context, run *models.TrainingRun) error {
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode training run: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(run.ID),
	)
	if err != nil {
		return apperrors.NewExternalServiceError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewExternalServiceError("elasticsearch", fmt.Errorf("index %s: %s", r.index, res.Status()))
	}
	return nil
}

func readBody(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(raw)
}
