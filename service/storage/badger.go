package storage

import (
	"context"
	"errors"

	"PPClient/logger"
	"PPClient/tools/errs"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// Badger 嵌入式 KV，落在本机磁盘
type Badger struct {
	db *badger.DB
}

// OpenBadger path 为空时使用内存模式
func OpenBadger(path string) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(badgerLogger{l: logger.Log.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "open badger", "path", path)
	}
	return &Badger{db: db}, nil
}

func (s *Badger) Get(_ context.Context, key string) (string, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", errs.ErrRecordNotFound.WrapMsg("badger get", "key", key)
	}
	if err != nil {
		return "", errs.WrapMsg(err, "badger get", "key", key)
	}
	return string(val), nil
}

func (s *Badger) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return errs.WrapMsg(err, "badger set", "key", key)
}

func (s *Badger) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return errs.WrapMsg(err, "badger delete", "key", key)
}

func (s *Badger) Close() error { return s.db.Close() }

// badgerLogger 把 badger 的日志转到 zap
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Errorf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warnf(f, v...) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debugf(f, v...) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Debugf(f, v...) }
