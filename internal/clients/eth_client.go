package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/folio/internal/domain"
	"github.com/vadiminshakov/folio/pkg/retrier"
)

// balanceOf(address)
var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

// EthereumClient reads balances of one account and submits signed
// transactions through a JSON-RPC node. The signing key is optional: without
// it the client is read-only and SendTransaction fails.
type EthereumClient struct {
	client     *ethclient.Client
	chainID    *big.Int
	account    common.Address
	privateKey *ecdsa.PrivateKey
}

// NewEthereumClient dials the node (with backoff, RPC endpoints flap on
// startup), verifies the chain id and resolves the account to watch.
// When privateKeyHex is non-empty the derived address must match
// walletAddress if both are given.
func NewEthereumClient(ctx context.Context, rpcURL, walletAddress, privateKeyHex string, chainID int64, r *retrier.Retrier) (*EthereumClient, error) {
	client, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*ethclient.Client, error) {
		return ethclient.DialContext(ctx, rpcURL)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", rpcURL)
	}

	nodeChainID, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch chain id")
	}
	if nodeChainID.Int64() != chainID {
		return nil, fmt.Errorf("node reports chain %d, config expects %d", nodeChainID.Int64(), chainID)
	}

	c := &EthereumClient{client: client, chainID: nodeChainID}

	if privateKeyHex != "" {
		key := privateKeyHex
		if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
			key = key[2:]
		}
		privateKey, err := crypto.HexToECDSA(key)
		if err != nil {
			return nil, errors.Wrap(err, "invalid private key")
		}
		pub, ok := privateKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("error casting public key to ECDSA")
		}
		c.privateKey = privateKey
		c.account = crypto.PubkeyToAddress(*pub)
	}

	if walletAddress != "" {
		if !common.IsHexAddress(walletAddress) {
			return nil, fmt.Errorf("invalid wallet address %q", walletAddress)
		}
		addr := common.HexToAddress(walletAddress)
		if c.privateKey != nil && addr != c.account {
			return nil, fmt.Errorf("signing key belongs to %s, config expects wallet %s", c.account.Hex(), addr.Hex())
		}
		c.account = addr
	}

	if c.account == (common.Address{}) {
		return nil, errors.New("neither wallet address nor private key configured")
	}

	return c, nil
}

// Address returns the account being rebalanced.
func (c *EthereumClient) Address() common.Address {
	return c.account
}

// RequestAccounts makes sure a signing account is available and returns it.
func (c *EthereumClient) RequestAccounts() (common.Address, error) {
	if c.privateKey == nil {
		return common.Address{}, errors.New("no signing key configured, set FOLIO_PRIVATE_KEY")
	}
	return c.account, nil
}

// GetBalance returns the raw smallest-unit balance of the account: the
// native balance when tokenAddress is empty, otherwise the ERC-20 balance.
func (c *EthereumClient) GetBalance(ctx context.Context, tokenAddress string) (*big.Int, error) {
	if tokenAddress == "" {
		balance, err := c.client.BalanceAt(ctx, c.account, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch native balance")
		}
		return balance, nil
	}

	token := common.HexToAddress(tokenAddress)
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(c.account.Bytes(), 32)...)

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch balance of token %s", tokenAddress)
	}

	return new(big.Int).SetBytes(result), nil
}

// SendTransaction signs the prepared transaction with the session key and
// submits it, returning the transaction hash. The native value is attached
// only when the prepared transaction carries one.
func (c *EthereumClient) SendTransaction(ctx context.Context, tx domain.PreparedTransaction, gasLimit uint64) (string, error) {
	if c.privateKey == nil {
		return "", errors.New("no signing key configured, set FOLIO_PRIVATE_KEY")
	}

	nonce, err := c.client.PendingNonceAt(ctx, c.account)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch nonce")
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch gas price")
	}

	data, err := hexutil.Decode(tx.Data)
	if err != nil {
		return "", errors.Wrap(err, "invalid call data")
	}

	value := new(big.Int)
	if tx.HasValue() {
		if _, ok := value.SetString(tx.Value, 10); !ok {
			return "", fmt.Errorf("invalid native value %q", tx.Value)
		}
	}

	to := common.HexToAddress(tx.To)
	signed, err := types.SignNewTx(c.privateKey, types.LatestSignerForChainID(c.chainID), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to sign transaction")
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return "", errors.Wrap(err, "failed to submit transaction")
	}

	return signed.Hash().Hex(), nil
}
