package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"

	"safety-card-bot/internal/domain/entity"
	"safety-card-bot/internal/domain/port"
)

// GCSArchiver складывает PDF карточки и размеченное фото в бакет Cloud Storage.
type GCSArchiver struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
	logger     *slog.Logger
}

// NewGCSArchiver создаёт архиватор для бакета bucketName.
func NewGCSArchiver(client *storage.Client, bucketName, prefix string, logger *slog.Logger) *GCSArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &GCSArchiver{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		prefix:     strings.Trim(prefix, "/"),
		logger:     logger,
	}
}

// Archive загружает отчёт и фото параллельно и возвращает gs:// адрес отчёта.
func (a *GCSArchiver) Archive(ctx context.Context, obs entity.Observation, report entity.Report, annotated []byte) (string, error) {
	if obs.ID == "" {
		return "", errors.New("observation id is required")
	}

	reportObject := objectName(a.prefix, obs.ID, "safety_card.pdf")
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		f, err := os.Open(report.Path)
		if err != nil {
			return fmt.Errorf("open report: %w", err)
		}
		defer f.Close()
		return a.saveAtomically(gctx, reportObject, "application/pdf", f)
	})

	if len(annotated) > 0 {
		photoObject := objectName(a.prefix, obs.ID, "annotated.jpg")
		eg.Go(func() error {
			return a.saveAtomically(gctx, photoObject, "image/jpeg", bytes.NewReader(annotated))
		})
	}

	if err := eg.Wait(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", a.bucketName, reportObject), nil
}

// saveAtomically пишет объект только если его ещё нет; существующий объект не ошибка.
func (a *GCSArchiver) saveAtomically(ctx context.Context, name, contentType string, r io.Reader) error {
	w := a.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			a.logger.Info("archive object already exists", "object", name)
			return nil
		}
		return fmt.Errorf("finalize gcs object %s: %w", name, err)
	}
	return nil
}

func objectName(prefix, observationID, file string) string {
	return path.Join(prefix, observationID, file)
}

// Проверка реализации интерфейса
var _ port.ReportArchiver = (*GCSArchiver)(nil)
