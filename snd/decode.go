// SPDX-License-Identifier: GPL-2.0-or-later

package snd

import (
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"

	"anchorsound/filesystem"
)

const resampleQuality = 4

// Decoder turns an audio file into a fully decoded buffer at the given
// sample rate. The core never decodes itself, it only holds the buffers.
type Decoder interface {
	Decode(name string, r io.ReadSeekCloser, rate beep.SampleRate) (*beep.Buffer, error)
}

// FileDecoder picks the beep decoder by file extension.
type FileDecoder struct{}

func (FileDecoder) Decode(name string, r io.ReadSeekCloser, rate beep.SampleRate) (*beep.Buffer, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch filesystem.Ext(name) {
	case ".wav":
		s, format, err = wav.Decode(r)
	case ".mp3":
		s, format, err = mp3.Decode(r)
	case ".flac":
		s, format, err = flac.Decode(r)
	case ".ogg":
		s, format, err = vorbis.Decode(r)
	default:
		return nil, errors.Wrap(ErrUnknownEncoding, filesystem.Ext(name))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	defer s.Close()
	return Resample(s, format, rate)
}

// Resample reads s completely into a stereo buffer at rate.
func Resample(s beep.Streamer, format beep.Format, rate beep.SampleRate) (*beep.Buffer, error) {
	target := beep.Format{
		SampleRate:  rate,
		NumChannels: 2,
		Precision:   2,
	}
	buf := beep.NewBuffer(target)
	if format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, s)
	}
	buf.Append(s)
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "read samples")
	}
	return buf, nil
}
