package erms

import "strconv"

// the portal numbers assembly constituencies 1 through 182
const assemblyCount = 182

// Assemblies lists every assembly code the portal's dropdown accepts.
func Assemblies() []string {
	out := make([]string, assemblyCount)
	for i := range out {
		out[i] = strconv.Itoa(i + 1)
	}
	return out
}

// IsAssembly reports whether `code` is one of Assemblies, codes are compared
// as written, "012" is not a known code.
func IsAssembly(code string) bool {
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return n >= 1 && n <= assemblyCount && strconv.Itoa(n) == code
}
