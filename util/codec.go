package util

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/pkg/errors"
)

//Compress gob-encodes p into a gzip stream.
func Compress(p interface{}) ([]byte, error) {
	zipbuf := &bytes.Buffer{}
	zipped := gzip.NewWriter(zipbuf)
	if e := gob.NewEncoder(zipped).Encode(p); e != nil {
		return nil, errors.Wrapf(e, "failed to encode %v", reflect.TypeOf(p))
	}
	if e := zipped.Close(); e != nil {
		return nil, errors.WithStack(e)
	}
	log.Debugf("gzip has written %d bytes", zipbuf.Len())
	return zipbuf.Bytes(), nil
}

//DecodeCompressed decodes bytes produced by Compress into p, which must be a pointer.
func DecodeCompressed(s []byte, p interface{}) error {
	return decodeCompressed(bytes.NewReader(s), p)
}

func decodeCompressed(r io.Reader, p interface{}) error {
	if reflect.ValueOf(p).Kind() != reflect.Ptr {
		return errors.Errorf("decode target must be a pointer, got %v", reflect.TypeOf(p))
	}
	rdr, e := gzip.NewReader(r)
	if e != nil {
		return errors.Wrap(e, "failed to create gzip reader for decompression")
	}
	defer rdr.Close()
	if e = gob.NewDecoder(rdr).Decode(p); e != nil {
		return errors.Wrapf(e, "failed to decode bytes to %v", reflect.TypeOf(p))
	}
	return nil
}

//WriteCompressed writes p to path as gzipped gob through a temporary file.
func WriteCompressed(path string, p interface{}) error {
	data, e := Compress(p)
	if e != nil {
		return e
	}
	if e = MkDirAll(filepath.Dir(path), 0755); e != nil {
		return e
	}
	tmp := path + ".tmp"
	if _, e = bufferedWrite(tmp, data); e != nil {
		return e
	}
	return errors.WithStack(os.Rename(tmp, path))
}

//ReadCompressed loads a file written by WriteCompressed into p.
func ReadCompressed(path string, p interface{}) error {
	f, e := os.Open(path)
	if e != nil {
		return errors.WithStack(e)
	}
	defer f.Close()
	return errors.WithMessage(decodeCompressed(f, p), path)
}
