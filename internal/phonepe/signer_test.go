package phonepe_test

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glowmart/backend-store/internal/phonepe"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestSignProducesLowercaseHexDigest(t *testing.T) {
	t.Parallel()

	body := base64.StdEncoding.EncodeToString([]byte(`{"merchantId":"M1","transactionId":"TXN-1"}`))
	digest := phonepe.Sign(body, phonepe.PayPath, "salt-key")
	require.Regexp(t, hexDigest, digest)
}

func TestSignIsDeterministic(t *testing.T) {
	t.Parallel()

	body := base64.StdEncoding.EncodeToString([]byte(`{"amount":19999}`))
	first := phonepe.Sign(body, phonepe.StatusPath, "salt-key")
	second := phonepe.Sign(body, phonepe.StatusPath, "salt-key")
	require.Equal(t, first, second)
}

func TestSignChangesWhenAnyInputChanges(t *testing.T) {
	t.Parallel()

	body := base64.StdEncoding.EncodeToString([]byte(`{"amount":19999}`))
	baseline := phonepe.Sign(body, phonepe.PayPath, "salt-key")

	mutated := []byte(body)
	mutated[0] ^= 0x01
	require.NotEqual(t, baseline, phonepe.Sign(string(mutated), phonepe.PayPath, "salt-key"))
	require.NotEqual(t, baseline, phonepe.Sign(body, phonepe.StatusPath, "salt-key"))
	require.NotEqual(t, baseline, phonepe.Sign(body, phonepe.PayPath, "other-salt"))
}

func TestXVerifyHasSingleSeparatorAndSaltIndexSuffix(t *testing.T) {
	t.Parallel()

	digest := phonepe.Sign("payload", phonepe.PayPath, "salt-key")
	header := phonepe.XVerify(digest, "1")
	require.Equal(t, 1, strings.Count(header, "###"))

	parts := strings.SplitN(header, "###", 2)
	require.Len(t, parts, 2)
	require.Regexp(t, hexDigest, parts[0])
	require.Equal(t, "1", parts[1])
}
