package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Codec serializes Metadata to and from the attachment wire format:
// [count][kLen][key][vLen][value]...
type Codec struct{}

// Encode serializes metadata. Keys are lower-cased so lookups on the remote
// side are case-insensitive.
func (Codec) Encode(md Metadata) ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, uint16(len(md))); err != nil {
		return nil, err
	}

	for k, v := range md {
		kb := []byte(strings.ToLower(k))
		vb := []byte(v)

		if err := binary.Write(buf, binary.LittleEndian, uint16(len(kb))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(kb); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint16(len(vb))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(vb); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses the [count][kLen][key][vLen][value]... wire format.
func (Codec) Decode(data []byte) (Metadata, error) {
	md := Metadata{}
	buf := bytes.NewReader(data)

	var count uint16
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read attachment count: %w", err)
	}

	for i := 0; i < int(count); i++ {
		var kLen uint16
		if err := binary.Read(buf, binary.LittleEndian, &kLen); err != nil {
			return nil, err
		}
		k := make([]byte, kLen)
		if _, err := io.ReadFull(buf, k); err != nil {
			return nil, fmt.Errorf("failed to read attachment key: %w", err)
		}

		var vLen uint16
		if err := binary.Read(buf, binary.LittleEndian, &vLen); err != nil {
			return nil, err
		}
		v := make([]byte, vLen)
		if _, err := io.ReadFull(buf, v); err != nil {
			return nil, fmt.Errorf("failed to read attachment value: %w", err)
		}

		md[strings.ToLower(string(k))] = string(v)
	}

	return md, nil
}
