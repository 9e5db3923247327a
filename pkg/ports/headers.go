package ports

import "io"

// HeaderWriter emits response metadata. Calls made after the body has started are ignored.
type HeaderWriter interface {
	Redirect(location string)
	ContentType(mime string)
	ContentDisposition(filename string)
	Status(code int)
	Set(key, value string)

	// Session hands the client the session id it must present on its next request.
	Session(id string)
}

// ResponseWriter is the transport-neutral sink a dispatch writes to.
type ResponseWriter interface {
	io.Writer
	HeaderWriter
}
