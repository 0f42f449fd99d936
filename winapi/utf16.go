package winapi

import "unicode/utf16"

// UTF16ToString decodes a NUL-terminated UTF-16 buffer such as the
// fixed-size name fields of the toolhelp rows.
func UTF16ToString(s []uint16) string {
	for i, v := range s {
		if v == 0 {
			s = s[:i]
			break
		}
	}
	return string(utf16.Decode(s))
}

// PutUTF16 encodes str into dst, truncating as needed so that dst always
// ends up NUL-terminated. It returns the number of units written before
// the terminator.
func PutUTF16(dst []uint16, str string) int {
	if len(dst) == 0 {
		return 0
	}
	enc := utf16.Encode([]rune(str))
	n := copy(dst[:len(dst)-1], enc)
	dst[n] = 0
	return n
}
