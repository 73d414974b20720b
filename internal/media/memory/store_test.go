package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/rights"
)

func TestPutAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	uri, err := s.Put(context.Background(), rights.CategoryMaleHealth, "n1", "0.jpg", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	require.Equal(t, "mem://male_health/n1/0.jpg", uri)

	obj, ok := s.Get("male_health/n1/0.jpg")
	require.True(t, ok)
	require.Equal(t, "image/jpeg", obj.ContentType)
	require.Equal(t, []byte{0xff, 0xd8}, obj.Data)
	require.Equal(t, 1, s.Len())
}

func TestPutRejectsEmptyKeyParts(t *testing.T) {
	t.Parallel()

	s := New()
	_, err := s.Put(context.Background(), rights.CategoryMaleHealth, "", "0.jpg", "", nil)
	require.Error(t, err)
	_, err = s.Put(context.Background(), rights.CategoryMaleHealth, "n1", "", "", nil)
	require.Error(t, err)
}
