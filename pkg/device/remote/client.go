package remote

import (
	"net/rpc"

	"epdbin/pkg/bitmap"
	"epdbin/pkg/proto"
)

// New dials a Proxy listening on addr.
func New(addr string) (proto.Control, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{rpc: client}, nil
}

type Client struct {
	rpc *rpc.Client
}

func (c *Client) Startup() error {
	return c.rpc.Call("Service.Command", "startup", nil)
}

func (c *Client) Shutdown() error {
	return c.rpc.Call("Service.Command", "shutdown", nil)
}

func (c *Client) Clear() error {
	return c.rpc.Call("Service.Command", "clear", nil)
}

func (c *Client) DrawContainer(ct *bitmap.Container) error {
	return c.rpc.Call("Service.DrawContainer", &DrawContainerRequest{
		Width:   ct.Width,
		Height:  ct.Height,
		Policy:  int(ct.Policy),
		Header:  ct.Header,
		Payload: ct.Payload,
	}, nil)
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
