package scoring

import "testing"

func TestNoExamplesReturnsNeutral(t *testing.T) {
	scores := ComputeSimilarityScores(
		[]string{"cloud software services", "office furniture"},
		nil, nil,
	)
	for i, s := range scores {
		if s != 0.5 {
			t.Errorf("score[%d] = %v, want 0.5", i, s)
		}
	}
}

func TestGoodOverlapRaisesScore(t *testing.T) {
	scores := ComputeSimilarityScores(
		[]string{"AI software development services"},
		[]string{"software development and AI consulting"},
		nil,
	)
	if scores[0] <= 0.5 {
		t.Errorf("score = %v, want > 0.5", scores[0])
	}
}

func TestBadOverlapLowersScore(t *testing.T) {
	scores := ComputeSimilarityScores(
		[]string{"office furniture procurement"},
		nil,
		[]string{"office furniture and fixtures"},
	)
	if scores[0] >= 0.5 {
		t.Errorf("score = %v, want < 0.5", scores[0])
	}
}

func TestScoreMonotonicInOverlap(t *testing.T) {
	good := []string{"software development cloud platform engineering"}

	weak := ComputeSimilarityScores([]string{"software procurement"}, good, nil)[0]
	strong := ComputeSimilarityScores([]string{"software development cloud platform"}, good, nil)[0]
	if strong <= weak {
		t.Errorf("more good-overlap should score higher: strong=%v weak=%v", strong, weak)
	}

	bad := []string{"snow removal and landscaping services"}
	clean := ComputeSimilarityScores([]string{"software platform"}, good, bad)[0]
	tainted := ComputeSimilarityScores([]string{"software platform snow removal"}, good, bad)[0]
	if tainted >= clean {
		t.Errorf("more bad-overlap should score lower: tainted=%v clean=%v", tainted, clean)
	}
}

func TestScoreClamped(t *testing.T) {
	// Massive repeated overlap against a tiny example must clamp to 1.
	scores := ComputeSimilarityScores(
		[]string{"ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai"},
		[]string{"ai"},
		nil,
	)
	if scores[0] != 1 {
		t.Errorf("score = %v, want 1", scores[0])
	}

	scores = ComputeSimilarityScores(
		[]string{"ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai ai"},
		nil,
		[]string{"ai"},
	)
	if scores[0] != 0 {
		t.Errorf("score = %v, want 0", scores[0])
	}
}

func TestMixedExamplesAboveNeutral(t *testing.T) {
	// Good example overlaps candidate heavily, bad example not at all.
	scores := ComputeSimilarityScores(
		[]string{"Custom software development for data platform"},
		[]string{"custom software development data services"},
		[]string{"janitorial cleaning contract"},
	)
	if scores[0] <= 0.5 {
		t.Errorf("score = %v, want > 0.5", scores[0])
	}
}

func TestTokenizeDropsShortAndPunct(t *testing.T) {
	toks := tokenize("An AI-driven R&D plan, v2!")
	want := map[string]bool{"an": true, "ai": true, "driven": true, "plan": true, "v2": true}
	for _, tok := range toks {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
	}
	for _, tok := range toks {
		if len(tok) < 2 {
			t.Errorf("token %q shorter than 2", tok)
		}
	}
}
