package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/grpc/backoff"
)

// maxConflictRetries bounds how many times a serializable transaction is
// replayed after badger.ErrConflict before the conflict is returned.
const maxConflictRetries = 64

// conflictBackoff spreads the replays of conflicting writers apart.
var conflictBackoff = backoff.Config{
	BaseDelay:  500 * time.Microsecond,
	Multiplier: 1.6,
	Jitter:     0.5,
	MaxDelay:   25 * time.Millisecond,
}

// Key layout:
//
//	profile:{id}                          -> domain.Profile
//	username:{lower(username)}            -> profile id
//	user:{lower(email)}                   -> User
//	conv:{id}                             -> domain.Conversation
//	pair:{pairKey}                        -> conversation id (1:1 uniqueness)
//	part:{conversation}:{profile}         -> domain.Participant
//	member:{profile}:{conversation}       -> empty, reverse membership index
//	msg:{conversation}:{%019d nanos}:{id} -> domain.Message
//	tx:{profile}:{%019d nanos}:{id}       -> domain.Transaction
func profileKey(id string) []byte { return []byte("profile:" + id) }

func usernameKey(username string) []byte {
	return []byte("username:" + strings.ToLower(username))
}

func userKey(email string) []byte { return []byte("user:" + strings.ToLower(email)) }

func conversationKey(id string) []byte { return []byte("conv:" + id) }

func pairIndexKey(pairKey string) []byte { return []byte("pair:" + pairKey) }

func participantKey(conversationID, profileID string) []byte {
	return []byte("part:" + conversationID + ":" + profileID)
}

func participantPrefix(conversationID string) []byte {
	return []byte("part:" + conversationID + ":")
}

func memberKey(profileID, conversationID string) []byte {
	return []byte("member:" + profileID + ":" + conversationID)
}

func memberPrefix(profileID string) []byte { return []byte("member:" + profileID + ":") }

func messagePrefix(conversationID string) []byte {
	return []byte("msg:" + conversationID + ":")
}

func messageKey(conversationID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, at.UnixNano(), id))
}

func transactionPrefix(profileID string) []byte { return []byte("tx:" + profileID + ":") }

func transactionKey(profileID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("tx:%s:%019d:%s", profileID, at.UnixNano(), id))
}

// update runs fn in a read-write transaction and replays it, after a
// jittered exponential delay, when another transaction committed a
// conflicting write in between. fn must not keep state across attempts.
func update(ctx context.Context, db *badger.DB, log *slog.Logger, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		delay := retryDelay(conflictBackoff, attempt)
		log.Debug("Transaction conflict, retrying", "attempt", attempt+1, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// retryDelay grows BaseDelay by Multiplier per attempt, caps it at MaxDelay
// and spreads it by +/- Jitter.
func retryDelay(config backoff.Config, attempt int) time.Duration {
	delay := float64(config.BaseDelay) * math.Pow(config.Multiplier, float64(attempt))
	delay = math.Min(delay, float64(config.MaxDelay))
	delay *= 1 + config.Jitter*(rand.Float64()*2-1)
	return time.Duration(delay)
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// notFound translates badger.ErrKeyNotFound into the given domain error.
func notFound(err, domainErr error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domainErr
	}
	return err
}

// scanJSON decodes every value under prefix in key order.
func scanJSON[T any](txn *badger.Txn, prefix []byte) ([]T, error) {
	var out []T
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, badger.ErrKeyNotFound)
}
