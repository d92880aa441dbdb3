package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/echiveai-alt/funnytime2-sub001/internal/schemas"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// fileCandidates serves one candidate profile read from a JSON file, whatever the user ID
type fileCandidates struct {
	profile *types.CandidateProfile
}

// loadCandidateFile reads and schema-checks a candidate profile
func loadCandidateFile(path string) (*fileCandidates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate file: %w", err)
	}
	if err := schemas.Validate(schemas.CandidateProfile, string(data)); err != nil {
		return nil, fmt.Errorf("invalid candidate file %s: %w", path, err)
	}

	var profile types.CandidateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse candidate file: %w", err)
	}
	if profile.Education == nil {
		profile.Education = []types.Education{}
	}
	return &fileCandidates{profile: &profile}, nil
}

func (f *fileCandidates) LoadCandidate(_ context.Context, _ string) (*types.CandidateProfile, error) {
	return f.profile, nil
}
