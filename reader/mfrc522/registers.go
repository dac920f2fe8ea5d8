package mfrc522

// MFRC522 registers (datasheet section 9)
const (
	CommandReg    = 0x01
	ComIEnReg     = 0x02
	DivIEnReg     = 0x03
	ComIrqReg     = 0x04
	DivIrqReg     = 0x05
	ErrorReg      = 0x06
	Status1Reg    = 0x07
	Status2Reg    = 0x08
	FIFODataReg   = 0x09
	FIFOLevelReg  = 0x0A
	ControlReg    = 0x0C
	BitFramingReg = 0x0D
	CollReg       = 0x0E
	ModeReg       = 0x11
	TxModeReg     = 0x12
	RxModeReg     = 0x13
	TxControlReg  = 0x14
	TxASKReg      = 0x15
	CRCResultRegH = 0x21
	CRCResultRegL = 0x22
	ModWidthReg   = 0x24
	TModeReg      = 0x2A
	TPrescalerReg = 0x2B
	TReloadRegH   = 0x2C
	TReloadRegL   = 0x2D
	VersionReg    = 0x37
)

// PCD commands written to CommandReg
const (
	CmdIdle       = 0x00
	CmdCalcCRC    = 0x03
	CmdTransceive = 0x0C
	CmdMFAuthent  = 0x0E
	CmdSoftReset  = 0x0F
)

// PICC commands
const (
	PiccREQA      = 0x26
	PiccWUPA      = 0x52
	PiccCT        = 0x88 // cascade tag in a partial UID
	PiccSelCL1    = 0x93
	PiccSelCL2    = 0x95
	PiccSelCL3    = 0x97
	PiccHLTA      = 0x50
	PiccAuthKeyA  = 0x60
	PiccRead      = 0x30
	PiccWrite     = 0xA0
	PiccAck       = 0x0A
	piccNVBAnti   = 0x20 // NVB for anticollision: 2 bytes sent
	piccNVBSelect = 0x70 // NVB for SELECT: 7 bytes sent
)

// Register bits
const (
	irqTimer   = 0x01
	irqErr     = 0x02
	irqIdle    = 0x10
	irqRx      = 0x20
	divIrqCRC  = 0x04
	errFatal   = 0x13 // BufferOvfl, ParityErr, ProtocolErr
	errColl    = 0x08
	crypto1On  = 0x08
	startSend  = 0x80
	fifoFlush  = 0x80
	powerDown  = 0x10
	antennaOn  = 0x03
	valuesColl = 0x80
)

// Known VersionReg values
const (
	VersionClone = 0x88
	Version0     = 0x90
	Version1     = 0x91
	Version2     = 0x92
	VersionFM    = 0x12 // FM17522 clone
)
