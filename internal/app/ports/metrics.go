package ports

import "haggle/internal/domain/negotiation"

type NegotiationMetrics interface {
	RecordOutcome(status negotiation.Status, rounds int)
	RecordConflict()
	RecordFailure()
	RecordRenderFallback()
}
