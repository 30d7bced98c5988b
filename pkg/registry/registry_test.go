package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/infomem/pkg/codec"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := openTestRegistry(t)

	stored, err := reg.Register(Entry{
		Path:       "/images/sensor-fw.bin",
		Offset:     4096,
		AppName:    "sensor-fw",
		AppVersion: "1.4.0",
		PayloadLen: 32,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.WithinDuration(t, time.Now(), stored.RegisteredAt, time.Minute)

	got, err := reg.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := openTestRegistry(t)

	_, err := reg.Get("2NqiTxvhHGWiXn7LWd2zY8FcVVn")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.Get("not-a-ksuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_List(t *testing.T) {
	reg := openTestRegistry(t)

	first, err := reg.Register(Entry{Path: "a.bin"})
	require.NoError(t, err)
	second, err := reg.Register(Entry{Path: "b.bin"})
	require.NoError(t, err)

	entries, err := reg.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// ksuid keys sort by creation time, so listing preserves registration
	// order.
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}

func TestRegistry_ListEmpty(t *testing.T) {
	reg := openTestRegistry(t)

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_Delete(t *testing.T) {
	reg := openTestRegistry(t)

	stored, err := reg.Register(Entry{Path: "a.bin"})
	require.NoError(t, err)

	require.NoError(t, reg.Delete(stored.ID))

	_, err = reg.Get(stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, reg.Delete(stored.ID), ErrNotFound)
}

func TestSummarize(t *testing.T) {
	r := codec.NewRecord()
	name := codec.Owned("widget-fw")
	git := codec.Owned("deadbee")
	host := codec.Owned("linux/amd64")
	ch := codec.ChannelNightly
	date := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	r.App.Name = &name
	r.App.Version = &codec.SemVer{Major: 2, Minor: 0, Patch: 1}
	r.App.Git = &git
	r.App.BuildDate = &date
	r.Toolchain.Version = &codec.SemVer{Major: 1, Minor: 23, Patch: 4}
	r.Toolchain.Channel = &ch
	r.Toolchain.Host = &host
	r.User.Present = true
	r.User.Data = []byte("calibration")

	e := Summarize("/images/widget.bin", 128, r)

	assert.Equal(t, "/images/widget.bin", e.Path)
	assert.Equal(t, int64(128), e.Offset)
	assert.Equal(t, "widget-fw", e.AppName)
	assert.Equal(t, "2.0.1", e.AppVersion)
	assert.Equal(t, "deadbee", e.AppGit)
	require.NotNil(t, e.BuildDate)
	assert.True(t, e.BuildDate.Equal(date))
	assert.Equal(t, "1.23.4", e.Toolchain)
	assert.Equal(t, "nightly", e.Channel)
	assert.Equal(t, "linux/amd64", e.Host)
	assert.Equal(t, len("calibration"), e.PayloadLen)
}

func TestSummarize_EmptyRecord(t *testing.T) {
	e := Summarize("bare.bin", 0, codec.NewRecord())

	assert.Equal(t, "bare.bin", e.Path)
	assert.Empty(t, e.AppName)
	assert.Nil(t, e.BuildDate)
	assert.Zero(t, e.PayloadLen)
}
