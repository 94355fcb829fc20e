package resize

import "github.com/vatsal3003/imgderive/pkg/models"

// Tier is a size-dependent compression goal for auto optimize.
type Tier struct {
	// Above is the exclusive lower bound on the original size.
	Above int64
	// Cap is the size ceiling; 0 leaves the image as is.
	Cap     int64
	Quality float64
}

// AutoTiers are checked in order; the first tier the original size exceeds wins.
var AutoTiers = []Tier{
	{Above: 2 * models.MiB, Cap: models.MB(0.8), Quality: 0.7},
	{Above: models.MB(1.5), Cap: models.MB(0.6), Quality: 0.75},
	{Above: 1 * models.MiB, Cap: models.MB(0.3), Quality: 0.8},
	{Above: 800 * 1024, Cap: models.MB(0.1), Quality: 0.85},
}

// AutoTier selects the tier for an original of size bytes.
func AutoTier(size int64) Tier {
	for _, t := range AutoTiers {
		if size > t.Above {
			return t
		}
	}
	return Tier{Quality: 1}
}

const minQuality = 0.05

// searchQuality looks for the highest quality not above start whose output
// fits budget, spending at most attempts encodes. When nothing fits it
// returns the smallest output it saw.
func searchQuality(start float64, budget int64, attempts int, encode func(q float64) ([]byte, error)) ([]byte, error) {
	if attempts < 1 {
		attempts = 1
	}

	var best, smallest []byte
	lo, hi := min(minQuality, start), start
	q := start
	for i := 0; i < attempts; i++ {
		out, err := encode(q)
		if err != nil {
			return nil, err
		}
		if smallest == nil || len(out) < len(smallest) {
			smallest = out
		}
		if int64(len(out)) <= budget {
			best = out
			if q == start {
				break
			}
			lo = q
		} else {
			hi = q
		}
		if i == 0 && best == nil {
			// Try the floor first so an unreachable budget costs two encodes.
			q = lo
			continue
		}
		if best == nil && q == lo {
			break
		}
		q = (lo + hi) / 2
		if hi-lo < 0.01 {
			break
		}
	}
	if best != nil {
		return best, nil
	}
	return smallest, nil
}
