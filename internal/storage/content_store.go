package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"file-storage-server/config"
	"file-storage-server/internal/model"
	"file-storage-server/internal/util"

	"github.com/dustin/go-humanize"
)

// ContentStore : владеет физическими файлами на диске. Постоянное хранилище
// раскладывается по hash контента (uploadDir/ab/abcdef...), поэтому пути
// не зависят от пользовательских имён файлов. Постоянную директорию
// мутирует только Commit, БД при этом остаётся источником истины.
type ContentStore struct {
	uploadDir string
	tempDir   string
}

func NewContentStore(cfg *config.StorageConfig) (*ContentStore, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, util.LogError("[ContentStore] ошибка создания директории хранилища", err)
		}
	}

	return &ContentStore{
		uploadDir: cfg.UploadDir,
		tempDir:   cfg.TempDir,
	}, nil
}

// Stage : принимает поток загрузки во временный файл и возвращает его
// метаданные. Временный файл живёт до Commit либо Discard.
func (s *ContentStore) Stage(reader io.Reader, originalName string, mimeType string) (*model.StagedUpload, error) {
	uniqueName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(originalName))
	tempPath := filepath.Join(s.tempDir, uniqueName)

	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, util.LogError("[ContentStore] ошибка создания временного файла", err)
	}

	size, err := io.Copy(tempFile, reader)
	if closeErr := tempFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		s.Discard(tempPath)
		return nil, util.LogError("[ContentStore] ошибка записи временного файла", err)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &model.StagedUpload{
		TempPath:     tempPath,
		OriginalName: originalName,
		SizeBytes:    size,
		MimeType:     mimeType,
		Extension:    strings.TrimPrefix(filepath.Ext(originalName), "."),
	}, nil
}

// Fingerprint : потоково считает SHA-256 содержимого файла.
// Одинаковые байты всегда дают одинаковый отпечаток.
func (s *ContentStore) Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", util.LogError("[ContentStore] ошибка открытия файла для хэширования", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", util.LogError("[ContentStore] ошибка чтения файла при хэшировании", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// BlobPath : детерминированный путь блоба в постоянном хранилище
func (s *ContentStore) BlobPath(hash string) string {
	return filepath.Join(s.uploadDir, hash[:2], hash)
}

// Commit : переносит временный файл в постоянное хранилище и удаляет
// оригинал. Идемпотентен при повторе: если блоб уже лежит по destPath
// (записан другой загрузкой того же контента), копирование пропускается
// и удаляется только временный файл.
func (s *ContentStore) Commit(tempPath string, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		s.Discard(tempPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return util.LogError("[ContentStore] ошибка создания директории блоба", err)
	}

	if err := copyFile(tempPath, destPath); err != nil {
		return util.LogError("[ContentStore] ошибка копирования блоба в хранилище", err)
	}

	s.Discard(tempPath)

	if info, err := os.Stat(destPath); err == nil {
		log.Printf("[ContentStore] блоб %s (%s) записан в хранилище", filepath.Base(destPath), humanize.Bytes(uint64(info.Size())))
	}

	return nil
}

// Discard : удаляет временный файл. Уже удалённый файл не считается
// ошибкой, поэтому Discard безопасно вызывать на любом пути выхода.
func (s *ContentStore) Discard(tempPath string) {
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		log.Printf("[ContentStore] не удалось удалить временный файл %s: %v", tempPath, err)
	}
}

// Open : открывает блоб на чтение для скачивания
func (s *ContentStore) Open(storagePath string) (io.ReadCloser, error) {
	file, err := os.Open(storagePath)
	if err != nil {
		return nil, util.LogError("[ContentStore] блоб не найден в хранилище", err)
	}
	return file, nil
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}

	return out.Close()
}
