package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"github.com/mvcampos/vendabot/core/logger"
)

// FileStore keeps the ledger in a single JSON array on disk, mirroring the
// catalog file backend.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) List(ctx context.Context) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Save(ctx context.Context, payments []Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, payments)
}

func (s *FileStore) AddPending(ctx context.Context, accountID int, buyerPhone, preferenceID, paymentLink string) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.load()
	if err != nil {
		return Payment{}, err
	}
	p := Payment{
		ID:           newID(),
		AccountID:    accountID,
		BuyerPhone:   buyerPhone,
		PreferenceID: preferenceID,
		PaymentLink:  paymentLink,
		Status:       StatusPending,
		CreatedAt:    nowStamp(),
	}
	payments = append(payments, p)
	if err := s.save(ctx, payments); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (s *FileStore) UpdateStatus(ctx context.Context, preferenceID, status string) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.load()
	if err != nil {
		return Payment{}, err
	}
	for i := range payments {
		if payments[i].PreferenceID != preferenceID {
			continue
		}
		payments[i].Status = status
		payments[i].UpdatedAt = nowStamp()
		if err := s.save(ctx, payments); err != nil {
			return Payment{}, err
		}
		return payments[i], nil
	}
	return Payment{}, ErrNotFound
}

func (s *FileStore) PendingByBuyer(ctx context.Context, buyerPhone string) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payments, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []Payment
	for _, p := range payments {
		if p.BuyerPhone == buyerPhone && p.Status == StatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *FileStore) load() ([]Payment, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Payment{}, nil
		}
		return nil, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	var payments []Payment
	if err := json.Unmarshal(data, &payments); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", s.path, err)
	}
	if payments == nil {
		payments = []Payment{}
	}
	return payments, nil
}

func (s *FileStore) save(ctx context.Context, payments []Payment) error {
	if payments == nil {
		payments = []Payment{}
	}
	data, err := json.MarshalIndent(payments, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ledger: replace %s: %w", s.path, err)
	}
	logger.Debug(ctx, "store", "ledger.save",
		slog.String("path", filepath.Base(s.path)),
		slog.Int("count", len(payments)),
	)
	return nil
}
