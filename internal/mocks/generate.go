// Package mocks provides mock implementations for testing the fieldproof lifecycle engine.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// outbound collaborator ports. Repository doubles live in the service package as
// hand-written stubs; only the external-system ports get generated mocks here.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	gateway := mocks.NewMockTransferGateway(ctrl)
//	gateway.EXPECT().CreateTransfer(gomock.Any(), gomock.Any()).Return(ports.Transfer{ID: "tr_1"}, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=transfer_gateway_mock.go github.com/rowhq/fieldproof/internal/ports TransferGateway
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=object_storage_mock.go github.com/rowhq/fieldproof/internal/ports ObjectStorage
