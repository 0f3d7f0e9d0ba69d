// Copyright 2016 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package hash computes SHA-1 signatures of programs and test data.
package hash

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

type Sig [sha1.Size]byte

// File returns the signature of the contents of file.
func File(file string) (Sig, error) {
	f, err := os.Open(file)
	if err != nil {
		return Sig{}, err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return Sig{}, fmt.Errorf("failed to hash %v: %w", file, err)
	}
	var sig Sig
	copy(sig[:], h.Sum(nil))
	return sig, nil
}

func (sig *Sig) String() string {
	return hex.EncodeToString((*sig)[:])
}

func FromString(str string) (Sig, error) {
	bin, err := hex.DecodeString(str)
	if err != nil {
		return Sig{}, fmt.Errorf("failed to decode sig '%v': %w", str, err)
	}
	if len(bin) != len(Sig{}) {
		return Sig{}, fmt.Errorf("failed to decode sig '%v': bad len", str)
	}
	var sig Sig
	copy(sig[:], bin)
	return sig, nil
}
