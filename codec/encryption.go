// Package codec encrypts workflow payloads before they reach the Temporal
// server, so patron details never sit in workflow history in clear text.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"google.golang.org/protobuf/proto"
)

const (
	MetadataEncoding      = "encoding"
	MetadataEncryptionKey = "encryption-key-id"
	EncodingEncrypted     = "binary/encrypted"
)

var ErrInvalidKey = errors.New("encryption key must be 16, 24 or 32 bytes")

// EncryptionCodec is a converter.PayloadCodec using AES-GCM
type EncryptionCodec struct {
	keyID string
	aead  cipher.AEAD
}

// NewEncryptionCodec creates a codec for the given AES key
func NewEncryptionCodec(keyID string, key []byte) (*EncryptionCodec, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &EncryptionCodec{keyID: keyID, aead: aead}, nil
}

// NewEncryptionDataConverter wraps the default data converter with encryption
func NewEncryptionDataConverter(key []byte) (converter.DataConverter, error) {
	c, err := NewEncryptionCodec("default", key)
	if err != nil {
		return nil, err
	}
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c), nil
}

// Encode implements converter.PayloadCodec
func (c *EncryptionCodec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		plain, err := proto.Marshal(p)
		if err != nil {
			return payloads, fmt.Errorf("failed to marshal payload: %w", err)
		}

		nonce := make([]byte, c.aead.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return payloads, fmt.Errorf("failed to generate nonce: %w", err)
		}

		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{
				MetadataEncoding:      []byte(EncodingEncrypted),
				MetadataEncryptionKey: []byte(c.keyID),
			},
			Data: c.aead.Seal(nonce, nonce, plain, nil),
		}
	}
	return result, nil
}

// Decode implements converter.PayloadCodec. Payloads that were not
// encrypted by this codec pass through unchanged.
func (c *EncryptionCodec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.GetMetadata()[MetadataEncoding]) != EncodingEncrypted {
			result[i] = p
			continue
		}

		data := p.GetData()
		nonceSize := c.aead.NonceSize()
		if len(data) < nonceSize {
			return payloads, errors.New("encrypted payload too short")
		}

		plain, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
		if err != nil {
			return payloads, fmt.Errorf("failed to decrypt payload: %w", err)
		}

		decoded := &commonpb.Payload{}
		if err := proto.Unmarshal(plain, decoded); err != nil {
			return payloads, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		result[i] = decoded
	}
	return result, nil
}
