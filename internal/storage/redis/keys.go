package redis

import (
	"fmt"

	"github.com/mcoot/matchlobby/internal/model"
)

// Key prefix for all lobby data
const keyPrefix = "mmlobby"

// pairingKey returns the Redis key for a Pairing
func pairingKey(id model.MatchID) string {
	return fmt.Sprintf("%s:pairing:%s", keyPrefix, id)
}

// pairingsIndexKey returns the Redis key for the ZSET of pairings scored by pairing time
func pairingsIndexKey() string {
	return fmt.Sprintf("%s:idx:pairings", keyPrefix)
}
