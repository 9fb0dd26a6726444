package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  NewError(InvalidSignature),
			want: "Kind=invalid_signature",
		},
		{
			name: "with index",
			err:  NewCertError(CertificateExpired, 1),
			want: "Kind=certificate_expired CertIndex=1",
		},
		{
			name: "with parent",
			err:  NewError(MalformedToken).WithParent(io.EOF),
			want: "Kind=malformed_token Parent=EOF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NewCertError(BrokenChainLink, 2).WithParent(io.EOF)

	assert.ErrorIs(t, err, NewError(BrokenChainLink))
	assert.ErrorIs(t, err, NewCertError(BrokenChainLink, 2))
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, NewCertError(BrokenChainLink, 1))
	assert.NotErrorIs(t, err, NewError(UntrustedRoot))
}

func TestErrorLogValue(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want slog.Value
	}{
		{
			name: "kind only",
			err:  NewError(InvalidBundleID),
			want: slog.GroupValue(slog.String("kind", string(InvalidBundleID))),
		},
		{
			name: "all fields",
			err:  NewCertError(CertificateRevoked, 0).WithParent(io.EOF),
			want: slog.GroupValue(
				slog.String("kind", string(CertificateRevoked)),
				slog.Int("cert_index", 0),
				slog.Any("parent", io.EOF),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.String(), tt.err.LogValue().String())
		})
	}
}
