package extract

import "testing"

func TestSegment(t *testing.T) {
	region := "Q3. Third question text here\nQ1. First question body text\nq3) Repeated number text here\nQ7: x"
	spans, short := Segment(region, DefaultMinSpanLength)

	wantNums := []int{3, 1, 3}
	if len(spans) != len(wantNums) {
		t.Fatalf("got %d spans, want %d: %+v", len(spans), len(wantNums), spans)
	}
	for i, n := range wantNums {
		if spans[i].Number != n {
			t.Errorf("span %d number = %d, want %d", i, spans[i].Number, n)
		}
	}
	if spans[0].Text != "Third question text here" {
		t.Errorf("span 0 text = %q", spans[0].Text)
	}
	if spans[2].Text != "Repeated number text here" {
		t.Errorf("span 2 text = %q", spans[2].Text)
	}
	if len(short) != 1 || short[0].Number != 7 {
		t.Errorf("short spans = %+v, want only Q7", short)
	}
}

func TestSegmentIgnoresEmbeddedQ(t *testing.T) {
	spans, _ := Segment("Q1. See the FAQ12 section for the details", DefaultMinSpanLength)
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Text != "See the FAQ12 section for the details" {
		t.Errorf("text = %q", spans[0].Text)
	}
}

func TestSegmentZeroIsNotAMarker(t *testing.T) {
	spans, _ := Segment("Q2. Question body where Q0 stays inside", DefaultMinSpanLength)
	if len(spans) != 1 || spans[0].Number != 2 {
		t.Fatalf("spans = %+v", spans)
	}
	if spans[0].Text != "Question body where Q0 stays inside" {
		t.Errorf("text = %q", spans[0].Text)
	}
}

func TestSegmentNoMarkers(t *testing.T) {
	spans, short := Segment("plain prose with no questions", DefaultMinSpanLength)
	if len(spans) != 0 || len(short) != 0 {
		t.Errorf("expected nothing, got %+v %+v", spans, short)
	}
}
