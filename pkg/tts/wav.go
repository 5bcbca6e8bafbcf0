package tts

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// EncodeWAV wraps 16-bit PCM samples in a RIFF/WAVE header.
func EncodeWAV(samples []int16, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2
	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

// SilentWAV returns ms milliseconds of mono silence.
func SilentWAV(sampleRate, ms int) []byte {
	return EncodeWAV(make([]int16, sampleRate*ms/1000), sampleRate, 1)
}

// ErrNotWAV is returned by WAVInfo for data without a RIFF/WAVE header.
var ErrNotWAV = errors.New("tts: not a WAV file")

// WAVInfo reads the format block of a canonical WAV file.
func WAVInfo(data []byte) (AudioFormat, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[12:16]) != "fmt " {
		return AudioFormat{}, ErrNotWAV
	}
	return AudioFormat{
		Encoding:   EncodingWAV,
		Channels:   int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(data[24:28])),
	}, nil
}
