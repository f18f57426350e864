package network

import "context"

// MockBlockchainService is a test double for BlockchainService.
// All function fields must be set before the corresponding method is called.
type MockBlockchainService struct {
	GetUTXOFn     func(ctx context.Context, txid string, vout uint32) (*UTXO, error)
	ListUnspentFn func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn func(ctx context.Context, rawTxHex string) (string, error)
	GetTxStatusFn func(ctx context.Context, txid string) (*TxStatus, error)
}

func (m *MockBlockchainService) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	return m.GetUTXOFn(ctx, txid, vout)
}
func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockBlockchainService) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	return m.GetTxStatusFn(ctx, txid)
}
