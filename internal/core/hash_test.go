package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMessage(t *testing.T) {
	require.Equal(t, "hello world", NormalizeMessage("  Hello   WORLD \n"))
	require.Equal(t, "", NormalizeMessage("   "))
}

func TestHashMessageNormalizes(t *testing.T) {
	require.Equal(t, HashMessage("Hello World"), HashMessage("  hello   world "))
	require.NotEqual(t, HashMessage("hello world"), HashMessage("hello worlds"))
	require.Empty(t, HashMessage("  "))
}

func TestHashDeviceFingerprintOpaque(t *testing.T) {
	hash := HashDeviceFingerprint("device-123")
	require.Len(t, hash, 64)
	require.NotContains(t, hash, "device-123")
	require.Empty(t, HashDeviceFingerprint(""))
}

func TestParseChannel(t *testing.T) {
	require.Equal(t, ChannelTelegram, ParseChannel("telegram"))
	require.Equal(t, ChannelNativeGuest, ParseChannel("native_guest"))
	require.Equal(t, ChannelWebchat, ParseChannel("webchat"))
	require.Equal(t, ChannelWebchat, ParseChannel("unknown"))
}
