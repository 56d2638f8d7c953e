/*
Package calc implements the calculation layer the sync engine delegates to.

The Calculator interface is the recomputation contract: scope-level capacity
aggregates, company-wide totals, and post-clear cache warmup. Service is the
reference implementation; it pulls raw numbers from an AggregateSource and
writes the computed results into the cache store, so a recomputation both
refreshes consumers' reads and repairs a previously invalidated entry.

ComputeGlobalTotals is deliberately exposed alongside RecomputeGlobalTotals:
it computes the same figure without the cache, giving the engine's
consistency check a second, independent path to compare against.
*/
package calc
