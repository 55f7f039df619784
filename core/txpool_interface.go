// TxPool interface - allows different transaction pool implementations
package core

// TxPoolInterface defines the common interface for transaction pools
// The scheduler pulls work units from it and puts rejected ones back
type TxPoolInterface interface {
	// Add a single transaction to the pool
	AddTx2Pool(tx *Transaction)

	// Add multiple transactions to the pool
	AddTxs2Pool(txs []*Transaction)

	// Pack up to max_txs transactions for admission
	PackTxs(max_txs uint64) []*Transaction

	// Get the number of transactions in the queue
	GetTxQueueLen() int
}
