/*
NAME
  class_test.go

DESCRIPTION
  class_test.go tests the class dispatch table's name <-> tag
  conversions: that every known class round-trips through its on-disk
  name under every version, and that an unrecognized name parses to
  ClassInvalid.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hx

import "testing"

func TestClassNameRoundTrip(t *testing.T) {
	versions := []Version{HXD, HXC, HX2, HXG, HXX, HX3}
	for c := Class(0); int(c) < len(classTable); c++ {
		for _, v := range versions {
			name := classToString(c, v)
			if name == "" {
				t.Fatalf("classToString(%v, %v) = \"\"", c, v)
			}
			if got := classFromString(name); got != c {
				t.Errorf("classFromString(%q) = %v, want %v (version %v)", name, got, c, v)
			}
		}
	}
}

func TestClassNamePlatformPrefix(t *testing.T) {
	got := classToString(ClassWavResData, HXG)
	want := "CGCWavResData"
	if got != want {
		t.Errorf("classToString(ClassWavResData, HXG) = %q, want %q", got, want)
	}
	got = classToString(ClassWaveFileIdObj, HX2)
	want = "CPS2WaveFileIdObj"
	if got != want {
		t.Errorf("classToString(ClassWaveFileIdObj, HX2) = %q, want %q", got, want)
	}
}

func TestClassNameCrossVersion(t *testing.T) {
	for _, v := range []Version{HXD, HXC, HX2, HXG, HXX, HX3} {
		got := classToString(ClassEventResData, v)
		want := "CEventResData"
		if got != want {
			t.Errorf("classToString(ClassEventResData, %v) = %q, want %q", v, got, want)
		}
	}
}

func TestClassFromStringUnknown(t *testing.T) {
	for _, name := range []string{"", "garbage", "CBogusClass", "DEventResData"} {
		if got := classFromString(name); got != ClassInvalid {
			t.Errorf("classFromString(%q) = %v, want ClassInvalid", name, got)
		}
	}
}
