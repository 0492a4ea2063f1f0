package cmd

import "strings"

// WLST style single-dash options accepted for invocation compatibility
var legacyFlags = map[string]string{
	"-loadProperties":        "--load-properties",
	"-skipWLSModuleScanning": "--skip-module-scanning",
}

func legacyArgs(args []string) []string {
	res := make([]string, 0, len(args))
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if flag, legacy := legacyFlags[name]; legacy {
			arg = flag
			if hasValue {
				arg += "=" + value
			}
		}
		res = append(res, arg)
	}
	return res
}
