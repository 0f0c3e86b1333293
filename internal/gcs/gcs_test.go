package gcs

import "testing"

func TestSplitURI(t *testing.T) {
	cases := []struct {
		in, bucket, object string
		ok                 bool
	}{
		{"gs://sales/2024/tickets.csv", "sales", "2024/tickets.csv", true},
		{"gs://sales/x.xlsx", "sales", "x.xlsx", true},
		{"gs://sales", "", "", false},
		{"gs://sales/", "", "", false},
		{"s3://sales/x.csv", "", "", false},
		{"/tmp/x.csv", "", "", false},
	}
	for _, c := range cases {
		b, o, err := SplitURI(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("SplitURI(%q) err=%v", c.in, err)
		}
		if c.ok && (b != c.bucket || o != c.object) {
			t.Fatalf("SplitURI(%q)=%q,%q", c.in, b, o)
		}
	}
}
