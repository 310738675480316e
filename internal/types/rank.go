package types

import "fmt"

// Rank is a commission tier. Zero means unranked; V1..V7 map to 1..7.
type Rank uint8

const (
	RankNone Rank = iota
	RankV1
	RankV2
	RankV3
	RankV4
	RankV5
	RankV6
	RankV7
)

const NumRanks = 7

func (r Rank) String() string {
	if r == RankNone {
		return "NONE"
	}
	return fmt.Sprintf("V%d", uint8(r))
}

func (r Rank) Valid() bool {
	return r <= RankV7
}

// ParseRank parses the string form produced by String, e.g. "V3" or "NONE".
func ParseRank(s string) (Rank, error) {
	if s == "NONE" {
		return RankNone, nil
	}
	var n uint8
	if _, err := fmt.Sscanf(s, "V%d", &n); err != nil || n == 0 || n > NumRanks {
		return RankNone, fmt.Errorf("invalid rank %q", s)
	}
	return Rank(n), nil
}
