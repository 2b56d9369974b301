// Package seal — финальный артефакт договора: проштампованный документ
// по детерминированному пути плюс sha256 содержимого (tamper-evidence).
package seal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrIntegrity — расхождение пересчитанного и сохранённого хэша.
var ErrIntegrity = errors.New("document integrity check failed")

// Generator — движок генерации документа (PDF и т.п. живут снаружи).
type Generator interface {
	Stamp(base []byte, signerName, date string) ([]byte, error)
}

// BlobStore — хранилище артефактов (локальный диск, объектное хранилище).
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}

type Sealer struct {
	gen      Generator
	blobs    BlobStore
	basePath string // базовый документ договора
}

func New(gen Generator, blobs BlobStore, basePath string) *Sealer {
	return &Sealer{gen: gen, blobs: blobs, basePath: basePath}
}

// DocumentPath — детерминированное место артефакта для договора.
func DocumentPath(leaseID uint) string {
	return fmt.Sprintf("signed-leases/lease_%d.pdf", leaseID)
}

// Seal штампует имя подписанта и дату на базовый документ, сохраняет
// результат и возвращает (путь, hex sha256 финальных байт).
func (s *Sealer) Seal(ctx context.Context, leaseID uint, signerName, date string) (path, hash string, err error) {
	base, err := s.blobs.Get(ctx, s.basePath)
	if err != nil {
		return "", "", fmt.Errorf("seal: load base document: %w", err)
	}
	stamped, err := s.gen.Stamp(base, signerName, date)
	if err != nil {
		return "", "", fmt.Errorf("seal: stamp: %w", err)
	}
	path = DocumentPath(leaseID)
	if err := s.blobs.Put(ctx, path, stamped); err != nil {
		return "", "", fmt.Errorf("seal: store artifact: %w", err)
	}
	sum := sha256.Sum256(stamped)
	return path, hex.EncodeToString(sum[:]), nil
}

// Verify пересчитывает хэш сохранённого артефакта.
// Несовпадение — ErrIntegrity: документу больше нельзя доверять,
// но статус Approved договора это задним числом не отменяет.
func (s *Sealer) Verify(ctx context.Context, path, wantHash string) error {
	data, err := s.blobs.Get(ctx, path)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != wantHash {
		return ErrIntegrity
	}
	return nil
}

// -------- процессные реализации --------

// TextStamper добавляет блок подписи в конец документа.
type TextStamper struct{}

func (TextStamper) Stamp(base []byte, signerName, date string) ([]byte, error) {
	block := fmt.Sprintf("\n\nSigned by: %s\nDate: %s\n", signerName, date)
	out := make([]byte, 0, len(base)+len(block))
	out = append(out, base...)
	return append(out, []byte(block)...), nil
}

// FSStore — артефакты на локальном диске под общим корнем.
type FSStore struct{ Root string }

func (f FSStore) Put(_ context.Context, path string, data []byte) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (f FSStore) Get(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(f.Root, filepath.FromSlash(path)))
}
