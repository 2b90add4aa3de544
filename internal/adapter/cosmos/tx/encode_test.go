package tx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/iho/gosend/internal/domain"
)

type field struct {
	num    protowire.Number
	bytes  []byte
	varint uint64
}

func decodeFields(t *testing.T, b []byte) []field {
	t.Helper()

	var fields []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0, "bad tag")
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			require.GreaterOrEqual(t, n, 0, "bad bytes field %d", num)
			f.bytes = v
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			require.GreaterOrEqual(t, n, 0, "bad varint field %d", num)
			f.varint = v
			b = b[n:]
		default:
			t.Fatalf("unexpected wire type %d for field %d", typ, num)
		}
		fields = append(fields, f)
	}
	return fields
}

func only(t *testing.T, fields []field, num protowire.Number) field {
	t.Helper()

	var found []field
	for _, f := range fields {
		if f.num == num {
			found = append(found, f)
		}
	}
	require.Len(t, found, 1, "field %d", num)
	return found[0]
}

func mustAddress(t *testing.T, fill byte) domain.Address {
	t.Helper()
	addr, err := domain.NewAddress("osmo", bytes.Repeat([]byte{fill}, 20))
	require.NoError(t, err)
	return addr
}

func TestBuildMsgSend(t *testing.T) {
	from := mustAddress(t, 1)
	to := mustAddress(t, 2)

	anyMsg := decodeFields(t, BuildMsgSend(from, to, []domain.Coin{{Denom: "uosmo", Amount: "100"}}))
	assert.Equal(t, MsgSendTypeURL, string(only(t, anyMsg, 1).bytes))

	msg := decodeFields(t, only(t, anyMsg, 2).bytes)
	assert.Equal(t, from.String(), string(only(t, msg, 1).bytes))
	assert.Equal(t, to.String(), string(only(t, msg, 2).bytes))

	coin := decodeFields(t, only(t, msg, 3).bytes)
	assert.Equal(t, "uosmo", string(only(t, coin, 1).bytes))
	assert.Equal(t, "100", string(only(t, coin, 2).bytes))
}

func TestEncodeAny_MatchesProtobufRuntime(t *testing.T) {
	value := []byte{0x0a, 0x03, 'a', 'b', 'c'}

	want, err := proto.MarshalOptions{Deterministic: true}.Marshal(&anypb.Any{
		TypeUrl: MsgSendTypeURL,
		Value:   value,
	})
	require.NoError(t, err)

	assert.Equal(t, want, encodeAny(MsgSendTypeURL, value))
}

func TestBuildUnsigned(t *testing.T) {
	pubKey := bytes.Repeat([]byte{0x02}, 33)
	msg := BuildMsgSend(mustAddress(t, 1), mustAddress(t, 2), []domain.Coin{{Denom: "uosmo", Amount: "1"}})

	u := BuildUnsigned([][]byte{msg}, "gosend", pubKey, 7, Fee{
		Amount:   []domain.Coin{{Denom: "uosmo", Amount: "5000"}},
		GasLimit: 200000,
	})

	body := decodeFields(t, u.BodyBytes)
	assert.Equal(t, msg, only(t, body, 1).bytes)
	assert.Equal(t, "gosend", string(only(t, body, 2).bytes))

	authInfo := decodeFields(t, u.AuthInfoBytes)
	signerInfo := decodeFields(t, only(t, authInfo, 1).bytes)

	pkAny := decodeFields(t, only(t, signerInfo, 1).bytes)
	assert.Equal(t, Secp256k1PubKeyTypeURL, string(only(t, pkAny, 1).bytes))
	pk := decodeFields(t, only(t, pkAny, 2).bytes)
	assert.Equal(t, pubKey, only(t, pk, 1).bytes)

	modeInfo := decodeFields(t, only(t, signerInfo, 2).bytes)
	single := decodeFields(t, only(t, modeInfo, 1).bytes)
	assert.Equal(t, uint64(SignModeDirect), only(t, single, 1).varint)
	assert.Equal(t, uint64(7), only(t, signerInfo, 3).varint)

	fee := decodeFields(t, only(t, authInfo, 2).bytes)
	feeCoin := decodeFields(t, only(t, fee, 1).bytes)
	assert.Equal(t, "5000", string(only(t, feeCoin, 2).bytes))
	assert.Equal(t, uint64(200000), only(t, fee, 2).varint)
}

func TestBuildUnsigned_OmitsZeroScalars(t *testing.T) {
	u := BuildUnsigned(nil, "", []byte{1}, 0, Fee{})

	assert.Empty(t, u.BodyBytes)

	authInfo := decodeFields(t, u.AuthInfoBytes)
	signerInfo := decodeFields(t, only(t, authInfo, 1).bytes)
	for _, f := range signerInfo {
		assert.NotEqual(t, protowire.Number(3), f.num, "zero sequence must be omitted")
	}
	assert.Empty(t, only(t, authInfo, 2).bytes)
}

func TestUnsigned_SignDocAndRaw(t *testing.T) {
	u := Unsigned{BodyBytes: []byte{1, 2}, AuthInfoBytes: []byte{3}}

	doc := decodeFields(t, u.SignDoc("osmo-test-5", 42))
	assert.Equal(t, []byte{1, 2}, only(t, doc, 1).bytes)
	assert.Equal(t, []byte{3}, only(t, doc, 2).bytes)
	assert.Equal(t, "osmo-test-5", string(only(t, doc, 3).bytes))
	assert.Equal(t, uint64(42), only(t, doc, 4).varint)

	// account number 0 is the proto3 default
	assert.Len(t, decodeFields(t, u.SignDoc("osmo-test-5", 0)), 3)

	sig := bytes.Repeat([]byte{9}, 64)
	raw := decodeFields(t, u.Raw(sig))
	assert.Equal(t, sig, only(t, raw, 3).bytes)
}

func TestHash(t *testing.T) {
	// sha256("")
	assert.Equal(t, "E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855", Hash(nil))
}
