package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_s3Location(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"Should split bucket and key", "s3://apps/releases/myapp.ear", "apps", "releases/myapp.ear", false},
		{"Should fail without key", "s3://apps/", "", "", true},
		{"Should fail without bucket", "s3:///myapp.ear", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := s3Location(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func Test_arnRegion(t *testing.T) {
	assert.Equal(t, "eu-west-1", arnRegion("arn:aws:kms:eu-west-1:123456789012:key/abcd"))
}
