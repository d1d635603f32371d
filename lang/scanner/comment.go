package scanner

// comment scans a comment up to the end of the line. The returned value
// excludes the leading '#'.
func (s *Scanner) comment() (lit, val string) {
	// '#' opening already consumed, hence the -1
	startOff := s.off - 1

	for s.cur != '\n' && s.cur != -1 {
		s.advance()
	}
	return string(s.src[startOff:s.off]), string(s.src[startOff+1 : s.off])
}
