package tx

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/iho/gosend/internal/domain"
)

// Protobuf type URLs packed into google.protobuf.Any.
const (
	MsgSendTypeURL         = "/cosmos.bank.v1beta1.MsgSend"
	Secp256k1PubKeyTypeURL = "/cosmos.crypto.secp256k1.PubKey"
)

// SignModeDirect is cosmos.tx.signing.v1beta1.SignMode SIGN_MODE_DIRECT.
const SignModeDirect = 1

// Fee is the transaction fee and gas limit.
type Fee struct {
	Amount   []domain.Coin
	GasLimit uint64
}

// Unsigned holds the two byte strings a SIGN_MODE_DIRECT signature covers.
type Unsigned struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
}

// BuildMsgSend encodes a MsgSend wrapped in Any.
func BuildMsgSend(from, to domain.Address, amount []domain.Coin) []byte {
	var msg []byte
	msg = appendString(msg, 1, from.String())
	msg = appendString(msg, 2, to.String())
	for _, c := range amount {
		msg = appendMessage(msg, 3, encodeCoin(c))
	}
	return encodeAny(MsgSendTypeURL, msg)
}

// BuildUnsigned encodes TxBody and AuthInfo for a single signer.
func BuildUnsigned(msgs [][]byte, memo string, pubKey []byte, sequence uint64, fee Fee) Unsigned {
	var body []byte
	for _, m := range msgs {
		body = appendMessage(body, 1, m)
	}
	body = appendString(body, 2, memo)

	var pk []byte
	pk = appendBytes(pk, 1, pubKey)

	var single []byte
	single = appendVarint(single, 1, SignModeDirect)
	var modeInfo []byte
	modeInfo = appendMessage(modeInfo, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, encodeAny(Secp256k1PubKeyTypeURL, pk))
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendVarint(signerInfo, 3, sequence)

	var feeBytes []byte
	for _, c := range fee.Amount {
		feeBytes = appendMessage(feeBytes, 1, encodeCoin(c))
	}
	feeBytes = appendVarint(feeBytes, 2, fee.GasLimit)

	var authInfo []byte
	authInfo = appendMessage(authInfo, 1, signerInfo)
	authInfo = appendMessage(authInfo, 2, feeBytes)

	return Unsigned{BodyBytes: body, AuthInfoBytes: authInfo}
}

// SignDoc encodes the SIGN_MODE_DIRECT document.
func (u Unsigned) SignDoc(chainID string, accountNumber uint64) []byte {
	var doc []byte
	doc = appendBytes(doc, 1, u.BodyBytes)
	doc = appendBytes(doc, 2, u.AuthInfoBytes)
	doc = appendString(doc, 3, chainID)
	doc = appendVarint(doc, 4, accountNumber)
	return doc
}

// Raw encodes TxRaw with the given signatures.
func (u Unsigned) Raw(signatures ...[]byte) []byte {
	var raw []byte
	raw = appendBytes(raw, 1, u.BodyBytes)
	raw = appendBytes(raw, 2, u.AuthInfoBytes)
	for _, sig := range signatures {
		raw = appendMessage(raw, 3, sig)
	}
	return raw
}

// Hash returns the ledger transaction hash of TxRaw bytes.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func encodeCoin(c domain.Coin) []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, c.Amount)
	return b
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

// Scalar fields follow proto3 and are omitted at their zero value.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	return appendMessage(b, num, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendMessage always emits the field, even when v is empty.
func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
