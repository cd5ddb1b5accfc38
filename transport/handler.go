//go:build unix

package transport

// Handler is the user-overridable callback object bound to exactly one
// Transport for its lifetime. Embed BaseHandler to pick up no-op defaults
// for whichever callbacks a particular handler doesn't care about.
type Handler interface {
	HandleRead(t *SocketTransport, data []byte)
	HandleWrite(t *SocketTransport)
	HandleConnect(t *SocketTransport)
	HandleConnectFailed(t *SocketTransport, err error)
	HandleExcept(t *SocketTransport)
	HandleClose(t *SocketTransport)
	HandleCleanup(t *SocketTransport)
	HandleError(t *SocketTransport, err error)
}

// BaseHandler implements every Handler method as a no-op. Real handlers
// embed it and override only the callbacks they need.
type BaseHandler struct{}

func (BaseHandler) HandleRead(*SocketTransport, []byte)        {}
func (BaseHandler) HandleWrite(*SocketTransport)               {}
func (BaseHandler) HandleConnect(*SocketTransport)              {}
func (BaseHandler) HandleConnectFailed(*SocketTransport, error) {}
func (BaseHandler) HandleExcept(*SocketTransport)               {}
func (BaseHandler) HandleClose(*SocketTransport)                {}
func (BaseHandler) HandleCleanup(*SocketTransport)               {}
func (BaseHandler) HandleError(*SocketTransport, error)         {}

var _ Handler = BaseHandler{}
