// Fee-ordered transaction pool feeding the fee market scheduler
package core

import (
	"container/heap"
	"sync"
)

// poolEntry keeps the insertion sequence used as FIFO tie-breaker
type poolEntry struct {
	tx  *Transaction
	seq uint64
}

// TxPriorityQueue implements heap.Interface for transaction prioritization
type TxPriorityQueue []poolEntry

func (pq TxPriorityQueue) Len() int { return len(pq) }

func (pq TxPriorityQueue) Less(i, j int) bool {
	// Higher offered fee rate first, then earlier insertion
	if pq[i].tx.SuppliedFeeRate != pq[j].tx.SuppliedFeeRate {
		return pq[i].tx.SuppliedFeeRate > pq[j].tx.SuppliedFeeRate
	}
	return pq[i].seq < pq[j].seq
}

func (pq TxPriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *TxPriorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(poolEntry))
}

func (pq *TxPriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = poolEntry{} // avoid memory leak
	*pq = old[0 : n-1]
	return item
}

// PriorityTxPool orders pending work units by offered fee rate
type PriorityTxPool struct {
	TxQueue *TxPriorityQueue
	nextSeq uint64
	lock    sync.Mutex
}

// NewPriorityTxPool creates an empty fee-ordered pool
func NewPriorityTxPool() *PriorityTxPool {
	pq := make(TxPriorityQueue, 0)
	heap.Init(&pq)
	return &PriorityTxPool{
		TxQueue: &pq,
	}
}

// AddTx2Pool adds a transaction to the priority pool
func (txpool *PriorityTxPool) AddTx2Pool(tx *Transaction) {
	txpool.lock.Lock()
	defer txpool.lock.Unlock()
	txpool.push(tx)
}

// AddTxs2Pool adds multiple transactions to the pool
func (txpool *PriorityTxPool) AddTxs2Pool(txs []*Transaction) {
	txpool.lock.Lock()
	defer txpool.lock.Unlock()
	for _, tx := range txs {
		txpool.push(tx)
	}
}

// push must be called with lock held
func (txpool *PriorityTxPool) push(tx *Transaction) {
	heap.Push(txpool.TxQueue, poolEntry{tx: tx, seq: txpool.nextSeq})
	txpool.nextSeq++
}

// PackTxs pops up to max_txs transactions in priority order
func (txpool *PriorityTxPool) PackTxs(max_txs uint64) []*Transaction {
	txpool.lock.Lock()
	defer txpool.lock.Unlock()

	txNum := max_txs
	if uint64(txpool.TxQueue.Len()) < txNum {
		txNum = uint64(txpool.TxQueue.Len())
	}

	txs_Packed := make([]*Transaction, 0, txNum)
	for i := uint64(0); i < txNum; i++ {
		entry := heap.Pop(txpool.TxQueue).(poolEntry)
		txs_Packed = append(txs_Packed, entry.tx)
	}

	return txs_Packed
}

// GetTxQueueLen returns the number of queued transactions
func (txpool *PriorityTxPool) GetTxQueueLen() int {
	txpool.lock.Lock()
	defer txpool.lock.Unlock()
	return txpool.TxQueue.Len()
}
