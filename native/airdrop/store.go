package airdrop

import (
	"tokenvault/crypto"
	"tokenvault/state"
	"tokenvault/storage"
)

const (
	configKey          = "airdrop/config"
	stageKey           = "airdrop/stage"
	rootTablePrefix    = "airdrop/root/"
	claimedTablePrefix = "airdrop/claimed/"
)

// Store persists the distribution config, the stage counter, per-stage merkle
// roots and the claimed flags.
type Store struct {
	config  *state.Singleton
	stage   *state.Singleton
	roots   *state.Bucket
	claimed *state.Bucket
}

// NewStore creates an airdrop store over db.
func NewStore(db storage.Database) *Store {
	return &Store{
		config:  state.NewSingleton(db, configKey),
		stage:   state.NewSingleton(db, stageKey),
		roots:   state.NewBucket(db, rootTablePrefix),
		claimed: state.NewBucket(db, claimedTablePrefix),
	}
}

func (s *Store) ConfigGet() (Config, bool, error) {
	var cfg Config
	ok, err := s.config.Get(&cfg)
	return cfg, ok, err
}

func (s *Store) ConfigPut(cfg Config) error {
	return s.config.Set(cfg)
}

func (s *Store) LatestStage() (uint8, error) {
	var stage uint8
	if _, err := s.stage.Get(&stage); err != nil {
		return 0, err
	}
	return stage, nil
}

func (s *Store) SetLatestStage(stage uint8) error {
	return s.stage.Set(stage)
}

func (s *Store) RootGet(stage uint8) ([32]byte, bool, error) {
	var root [32]byte
	ok, err := s.roots.Get([]byte{stage}, &root)
	return root, ok, err
}

func (s *Store) RootPut(stage uint8, root [32]byte) error {
	return s.roots.Set([]byte{stage}, root)
}

func claimedKey(stage uint8, addr crypto.Address) []byte {
	return append([]byte{stage}, addr.Bytes()...)
}

func (s *Store) IsClaimed(stage uint8, addr crypto.Address) (bool, error) {
	return s.claimed.Has(claimedKey(stage, addr))
}

func (s *Store) SetClaimed(stage uint8, addr crypto.Address) error {
	return s.claimed.Set(claimedKey(stage, addr), true)
}
