// Package retry provides the bounded retry loop and backoff strategies used by
// the figshare client.
//
// Do is an explicit loop over attempts: it never sleeps after the final
// attempt and stops early on non-retryable errors or context cancellation.
// ErrorTypeBackoff lets one loop wait differently per failure kind, e.g.
// exponential backoff for server errors and a uniform window after a bot
// challenge:
//
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff: &retry.ErrorTypeBackoff{
//			Default: retry.DefaultExponentialBackoff(),
//			ByType: map[errors.ErrorType]retry.BackoffStrategy{
//				errors.ErrorTypeChallenge: &retry.UniformBackoff{Min: 2 * time.Second, Max: 5 * time.Second},
//			},
//		},
//		Context: ctx,
//	}
//	err := retry.Do(op, cfg)
package retry
