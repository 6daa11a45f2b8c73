package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Every message on the stream is a single encoded block wrapped in a
// BytesValue, so the service needs no generated code of its own.

const messageStreamMethod = "/hashchaind.P2P/MessageStream"

type p2pStreamHandler interface {
	MessageStream(stream *messageStreamServer) error
}

var p2pServiceDesc = grpc.ServiceDesc{
	ServiceName: "hashchaind.P2P",
	HandlerType: (*p2pStreamHandler)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "MessageStream",
			Handler:       messageStreamHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "p2p.proto",
}

func messageStreamHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(p2pStreamHandler).MessageStream(&messageStreamServer{stream})
}

type messageStreamServer struct {
	grpc.ServerStream
}

func (x *messageStreamServer) Send(message *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(message)
}

func (x *messageStreamServer) Recv() (*wrapperspb.BytesValue, error) {
	message := new(wrapperspb.BytesValue)
	if err := x.ServerStream.RecvMsg(message); err != nil {
		return nil, err
	}
	return message, nil
}

type messageStreamClient struct {
	grpc.ClientStream
}

func newMessageStreamClient(ctx context.Context, clientConnection *grpc.ClientConn,
	options ...grpc.CallOption) (*messageStreamClient, error) {

	stream, err := clientConnection.NewStream(ctx, &p2pServiceDesc.Streams[0], messageStreamMethod, options...)
	if err != nil {
		return nil, err
	}
	return &messageStreamClient{stream}, nil
}

func (x *messageStreamClient) Send(message *wrapperspb.BytesValue) error {
	return x.ClientStream.SendMsg(message)
}

func (x *messageStreamClient) Recv() (*wrapperspb.BytesValue, error) {
	message := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(message); err != nil {
		return nil, err
	}
	return message, nil
}
