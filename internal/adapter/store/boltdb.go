package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"testgen/internal/domain"
)

var (
	bucketSymbols   = []byte("symbols")
	bucketProposals = []byte("proposals")
	bucketMeta      = []byte("meta")
)

// BoltStore keeps workflow state between runs: document symbols keyed by
// absolute path and the history of proposed test cases.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketSymbols, bucketProposals, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// FileStamp identifies one version of a file on disk.
type FileStamp struct {
	ModTime int64 `json:"mod_time"` // unix nanoseconds
	Size    int64 `json:"size"`
}

// StampOf stats path.
func StampOf(path string) (FileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileStamp{}, err
	}
	return FileStamp{ModTime: info.ModTime().UnixNano(), Size: info.Size()}, nil
}

type symbolsEntry struct {
	Stamp FileStamp           `json:"stamp"`
	Nodes []domain.SymbolNode `json:"nodes"`
}

// PutSymbols stores the symbol tree of absPath as of stamp.
func (s *BoltStore) PutSymbols(absPath string, stamp FileStamp, nodes []domain.SymbolNode) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(symbolsEntry{Stamp: stamp, Nodes: nodes})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSymbols).Put([]byte(absPath), data)
	})
}

// GetSymbols returns the stored symbol tree of absPath if it was stored for
// the same stamp. A stale or undecodable entry is a miss.
func (s *BoltStore) GetSymbols(absPath string, stamp FileStamp) ([]domain.SymbolNode, bool, error) {
	var nodes []domain.SymbolNode
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSymbols).Get([]byte(absPath))
		if data == nil {
			return nil
		}
		var entry symbolsEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		if entry.Stamp != stamp {
			return nil
		}
		nodes = entry.Nodes
		found = true
		return nil
	})
	return nodes, found, err
}

func (s *BoltStore) DeleteSymbols(absPath string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSymbols).Delete([]byte(absPath))
	})
}

// Proposal is one recorded set of proposed test cases.
type Proposal struct {
	ID        string    `json:"id"`
	Function  string    `json:"function"`
	FilePath  string    `json:"file_path"`
	Input     string    `json:"input"` // raw command input, replayable
	Cases     []string  `json:"cases"`
	CreatedAt time.Time `json:"created_at"`
}

// PutProposal stores p, assigning an ID and timestamp when missing, and returns the ID.
func (s *BoltStore) PutProposal(p Proposal) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketProposals).Put([]byte(p.ID), data)
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *BoltStore) GetProposal(id string) (Proposal, error) {
	var p Proposal
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProposals).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("proposal not found: %s", id)
		}
		return json.Unmarshal(data, &p)
	})
	return p, err
}

// ListProposals returns proposals newest first.
func (s *BoltStore) ListProposals() ([]Proposal, error) {
	var proposals []Proposal
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProposals).ForEach(func(k, v []byte) error {
			var p Proposal
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			proposals = append(proposals, p)
			return nil
		})
	})
	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.After(proposals[j].CreatedAt)
	})
	return proposals, err
}
