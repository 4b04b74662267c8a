package testutil

import (
	"github.com/google/uuid"
)

// Fixed UUIDs for deterministic testing
var (
	TestBundleID     = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestPredictionID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestBatchID      = uuid.MustParse("00000000-0000-0000-0000-000000000010")
)
