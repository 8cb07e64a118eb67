// Package ratelimit keeps request rates inside what remote services tolerate.
//
// Pacer serves the sequential filename resolver: one call at a time with a
// randomized gap (floor plus jitter) between calls. TokenBucket caps the
// aggregate rate of the concurrent link checker.
//
//	pacer := ratelimit.NewPacer(time.Second, 500*time.Millisecond)
//	for _, id := range ids {
//		if err := pacer.Wait(ctx); err != nil {
//			return err
//		}
//		resolve(id)
//	}
package ratelimit
