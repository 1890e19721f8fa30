// Package ratelimit paces the sequential page visits of a crawl.
//
// The catalog site is visited one page at a time with a fixed pause between
// visits. A Limiter is consulted before each navigation:
//
//	pacer := ratelimit.NewFixedDelay(2 * time.Second)
//	for _, url := range urls {
//	    if err := pacer.Wait(ctx); err != nil {
//	        return err // cancelled
//	    }
//	    // visit url
//	    pacer.Done()
//	}
//
// Wait returns immediately until a request has been marked Done; after that it
// blocks until the delay has elapsed since the last Done. Wait returns early
// with the context's error when the run is cancelled.
package ratelimit
