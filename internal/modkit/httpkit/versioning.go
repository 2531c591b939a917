package httpkit

import "strings"

// MountAPI mounts a subrouter under /api/{version} with the scope's middleware
//
//	httpkit.MountAPI(r, "v1", httpkit.CommonStack(opts), func(api httpkit.Router) {
//	  recs.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []Middleware, mount func(Router)) {
	ver := strings.Trim(strings.TrimSpace(version), "/")
	if ver == "" {
		ver = "v1"
	}
	MountUnder(r, "/api/"+ver, mw, mount)
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []Middleware, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
