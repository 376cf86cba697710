package hrmux

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"sample line", "R,120,72,833", EventTypeSample},
		{"battery line", "B,85", EventTypeBattery},
		{"status json", `{"fw":"1.2"}`, EventTypeStatus},
		{"noise", "###boot###", EventTypeUnknown},
		{"empty", "", EventTypeUnknown},
		{"bare R", "R", EventTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.line); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseSample(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Sample
		wantErr bool
	}{
		{
			name: "typical reading",
			line: "R,120,72,833",
			want: Sample{UptimeSec: 120, BPM: 72, RRIntervalMS: 833},
		},
		{
			name: "zero rr interval",
			line: "R,5,100,0",
			want: Sample{UptimeSec: 5, BPM: 100, RRIntervalMS: 0},
		},
		{
			name: "trailing newline",
			line: "R,120,72,833\n",
			want: Sample{UptimeSec: 120, BPM: 72, RRIntervalMS: 833},
		},
		{name: "wrong prefix", line: "Q,120,72,833", wantErr: true},
		{name: "too few fields", line: "R,120,72", wantErr: true},
		{name: "too many fields", line: "R,120,72,833,9", wantErr: true},
		{name: "non-numeric uptime", line: "R,abc,72,833", wantErr: true},
		{name: "non-numeric bpm", line: "R,120,xx,833", wantErr: true},
		{name: "non-numeric rr", line: "R,120,72,zz", wantErr: true},
		{name: "zero bpm", line: "R,120,0,833", wantErr: true},
		{name: "bpm too high", line: "R,120,300,833", wantErr: true},
		{name: "negative rr", line: "R,120,72,-5", wantErr: true},
		{name: "empty line", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSample(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSample(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSample(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
