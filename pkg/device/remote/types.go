package remote

type EmptyResponse struct {
	OK bool
}

type DrawContainerRequest struct {
	Width   int
	Height  int
	Policy  int
	Header  bool
	Payload []byte
}
